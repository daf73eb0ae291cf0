package main

import "github.com/jengzang/sporttracker-backend-go/internal/app"

func main() {
	app.Run()
}
