// Command meshauth はアカウント登録とトークン発行を行う認証サービス。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/meshauth/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "meshauth: %v\n", err)
		os.Exit(1)
	}
}
