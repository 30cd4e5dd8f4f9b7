package main

import (
	"os"

	"github.com/taskdesk/todo-service/internal/cli"
)

// @title           Todo Service API
// @version         1.0
// @description     Todos, live notifications and account management.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
