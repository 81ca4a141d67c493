package main

//go:generate swag init -g cmd/panel/main.go -o docs

// @title           Bot Panel API
// @version         0.1.0
// @description     Dashboard state, notifications and health checks for the bot and payment gateway panel.
// @host            localhost:8090
// @BasePath        /
// @schemes         http
