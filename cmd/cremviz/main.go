/*
Copyright © 2016 the cremviz authors.
This file is part of cremviz.

cremviz is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cremviz is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cremviz.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command cremviz prepares the results of the China Regional Energy Model
// and builds the charts and maps of the results website from them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mit-jp/cremviz/cremutil"
)

func main() {
	if commandCount(os.Args) == 1 { // If only one command was supplied, start the GUI server.
		cremutil.StartWebServer()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// If more than one command was supplied, run in CLI mode.
	if err := cremutil.Root.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(-1)
	}
}

// commandCount returns the number of arguments that are not flags.
func commandCount(args []string) int {
	var n int
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			n++
		}
	}
	return n
}
