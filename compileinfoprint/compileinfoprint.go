// compileinfoprint is imported for the side effect of printing the build stamp
// to os.Stderr before main runs.
package compileinfoprint

import "github.com/carbocation/dicomconvert/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
