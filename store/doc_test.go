package store

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverPackageDocs(t *testing.T) {
	for _, dir := range []string{".", "memory", "postgres", "sqlite", "mongo"} {
		t.Run(dir, func(t *testing.T) {
			pkgs, err := parser.ParseDir(token.NewFileSet(), dir, nil, parser.PackageClauseOnly|parser.ParseComments)
			require.NoError(t, err)

			for name, pkg := range pkgs {
				if strings.HasSuffix(name, "_test") {
					continue
				}
				var docs []string
				for _, f := range pkg.Files {
					if f.Doc != nil {
						docs = append(docs, f.Doc.Text())
					}
				}
				require.NotEmpty(t, docs, "package %s has no doc comment", name)
				for _, doc := range docs {
					assert.True(t, strings.HasPrefix(doc, "Package "+name+" "), "package %s documented as %q", name, doc)
				}
			}
		})
	}
}
