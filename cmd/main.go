// cmd/main.go
package main

import (
	"go-finance-api/app"
)

func main() {
	app.Run()
}
