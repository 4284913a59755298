// main is the entrypoint of the mzzbscore CLI.
package main

import (
	"github.com/kisekinoumi/mzzbscore-edit/cmd"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
)

func main() {
	err := cmd.Execute()
	if closeErr := cmd.CloseHistory(); closeErr != nil {
		contract.LogWarn("Cannot close run history", closeErr)
	}
	if err != nil {
		contract.LogFatal("Cannot run command", err)
	}
}
