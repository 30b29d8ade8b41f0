package plugins

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

func validatePattern(p string) error {
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("invalid pattern %q", p)
	}
	return nil
}
