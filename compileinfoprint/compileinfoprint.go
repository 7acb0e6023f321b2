// Package compileinfoprint is imported for its side effect: it writes the
// binary's build information to stderr at startup.
package compileinfoprint

import "github.com/carbocation/exprannot/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
