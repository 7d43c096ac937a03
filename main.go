package main

import (
	"fmt"
	"os"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/analyze"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/catalog"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/importcmd"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/preview"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(analyze.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(preview.Cmd)
	root.Cmd.AddCommand(catalog.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
