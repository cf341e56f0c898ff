// catflow 按 category flow 对实体标注文件中的候选重排。
package main

import (
	"os"
)

// version 构建时通过 ldflags 注入
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
