package jrblog_test

import "testing/fstest"

// templateFS is an fs.FS holding the templates, keyed by path.
func templateFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, contents := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(contents)}
	}
	return fsys
}
