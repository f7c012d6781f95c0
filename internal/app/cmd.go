package app

import (
	"fmt"
	"io"
	"strings"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	CommandServe       Command = "serve"
	CommandMigrate     Command = "migrate"
	CommandHealthcheck Command = "healthcheck"
	CommandVerifyToken Command = "verify-token"
	CommandHelp        Command = "help"
)

// commandSpec はサブコマンドの使い方の1行説明。
type commandSpec struct {
	cmd     Command
	args    string
	summary string
}

// commandTable はusageの表示順を兼ねる。
var commandTable = []commandSpec{
	{CommandServe, "", "start the HTTP API (default)"},
	{CommandMigrate, "", "apply pending database migrations and exit"},
	{CommandHealthcheck, "", "GET /health on the local port; exit 1 unless 200 (Docker HEALTHCHECK)"},
	{CommandVerifyToken, "<token>", "validate a token with JWT_SECRET and print its account id"},
	{CommandHelp, "", "show this message"},
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	for _, spec := range commandTable {
		if string(spec.cmd) == args[0] {
			return spec.cmd
		}
	}
	return CommandServe
}

// writeUsage はサブコマンド一覧をwに書き出す。
func writeUsage(w io.Writer) error {
	var b strings.Builder
	b.WriteString("usage: meshauth [command]\n\ncommands:\n")
	for _, spec := range commandTable {
		name := string(spec.cmd)
		if spec.args != "" {
			name += " " + spec.args
		}
		fmt.Fprintf(&b, "  %-22s %s\n", name, spec.summary)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
