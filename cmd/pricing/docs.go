package main

//go:generate swag init -g cmd/pricing/main.go -o docs

// @title           Press Market Pricing API
// @version         0.1.0
// @description     Dynamic pricing engine for media placement opportunities.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
