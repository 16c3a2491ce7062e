package main

import (
	"webcat-submit/cmd/webcat/commands"
	"webcat-submit/pkg/osutil"
)

func main() {
	ctx, cancel := osutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
