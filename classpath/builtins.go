package classpath

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
)

//go:embed builtins/*.yaml
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinDocs []*Document
	builtinErr  error
)

// Builtins returns the embedded documents declaring the java.lang,
// java.util, java.io, java.math and javax.swing classes that user
// documents commonly extend, plus the primitive types. The returned
// documents are shared and must not be modified.
func Builtins() ([]*Document, error) {
	builtinOnce.Do(func() {
		builtinDocs, builtinErr = readBuiltins()
	})
	return builtinDocs, builtinErr
}

func readBuiltins() ([]*Document, error) {
	entries, err := fs.ReadDir(builtinFS, "builtins")
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	docs := make([]*Document, 0, len(entries))
	for _, e := range entries {
		name := path.Join("builtins", e.Name())
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		doc, err := ParseYAML(data, "builtin:"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("classpath: built-in %s: %w", e.Name(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
