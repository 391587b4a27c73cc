//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=loader
package loader

import "github.com/denizgursoy/tursu/pkg/gherkin"

type (
	// DocumentParser turns normalized feature source into a document tree.
	DocumentParser interface {
		Parse(source string, uri string) (*gherkin.Feature, error)
	}
)
