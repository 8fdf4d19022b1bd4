package sequence_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/brnnnfx/daffodil/term"
)

// scalarFieldSchema is the on-disk shape of a testdata/*.yaml fixture:
// an ordered or unordered sequence of delimited byte fields. Grounded on
// gopkg.in/yaml.v3's use elsewhere in the example pack for structured
// test/config data, this lets a scenario's schema shape live next to the
// test instead of being built up field-by-field in Go every time.
type scalarFieldSchema struct {
	Ordered  bool `yaml:"ordered"`
	Children []struct {
		Name     string `yaml:"name"`
		Required bool   `yaml:"required"`
	} `yaml:"children"`
}

// loadScalarFieldSchema reads path and builds the []term.ChildParser it
// describes out of the byteField fixture, plus the ordered flag to pass to
// sequence.Parse.
func loadScalarFieldSchema(t *testing.T, path string) (children []term.ChildParser, ordered bool) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var schema scalarFieldSchema
	require.NoError(t, yaml.Unmarshal(data, &schema))

	for _, c := range schema.Children {
		children = append(children, newByteField(c.Name, c.Required))
	}
	return children, schema.Ordered
}
