package main

import (
	"portalwatch/cmd/portalwatch/commands"
	"portalwatch/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
