package proguard

import (
	"bufio"
	"io"

	"github.com/frantjc/dexkeep"
	xslice "github.com/frantjc/x/slice"
)

// KeepRule returns the rule that keeps the dotted className and all
// of its members. It says "public" regardless of the class's actual
// visibility.
func KeepRule(className string) string {
	return "-keep public class " + className + " {*;}"
}

// KeepRules returns one KeepRule per member of classes, sorted by class
// name so that the resulting command line is reproducible.
func KeepRules(classes *dexkeep.ClassSet) []string {
	return xslice.Map(classes.Sorted(), func(className string, _ int) string {
		return KeepRule(className)
	})
}

// WriteConfig writes rules to w one per line, in the format of a
// configuration file that can be passed to `-include`.
func WriteConfig(w io.Writer, rules []string) error {
	bw := bufio.NewWriter(w)
	for _, rule := range rules {
		if _, err := bw.WriteString(rule + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}
