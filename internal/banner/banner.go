// Package banner renders the startup banner.
package banner

import "fmt"

const art = `
                 __
    ____  _____ / _| ____ _
   |  _ \/ ___|| |_ / _  |
   | |_) | (__ |  _| (_| |
   | .__/\___||_|  \__, |
   |_|             |___/
`

// Banner returns the banner with the version line.
func Banner(version string) string {
	return fmt.Sprintf("%s   treebank grammars & CYK parsing  %s\n\n", art, version)
}
