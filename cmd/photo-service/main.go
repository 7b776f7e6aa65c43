package main

import (
	"os"

	"github.com/yongikim/photolio-lambda-functions/photoservice"
)

func main() {
	if err := photoservice.Run(); err != nil {
		os.Exit(1)
	}
}
