// Package crawl provides a fast, configurable recursive directory crawler.
//
// A crawl is configured with a chained builder and then run in one of three
// ways:
//
//	api := crawl.New().
//		WithRelativePaths().
//		Glob("**/*.go").
//		Exclude(func(name, _ string) bool { return name == "vendor" }).
//		Crawl("./src")
//
//	// Blocking
//	out, err := api.Sync()
//
//	// Concurrent listings, waiting for the result
//	out, err := api.Await(ctx)
//
//	// Lazy, one path at a time
//	for path, err := range api.All() {
//		...
//	}
//
// Output is crawl.Paths by default, crawl.Counts with OnlyCounts and
// crawl.Groups with Group.
//
// # Symlinks
//
// WithSymlinks follows symlinks. By default entries below a linked directory
// are reported through the link; with SymlinkOptions.UseRealPaths they are
// reported under their canonical path and every real directory is walked at
// most once. Cycles terminate in both modes.
//
// # File systems
//
// The local file system is crawled by default. WithFS crawls any FS, such as
// AferoFS over an in-memory tree or SFTPFS over a remote host.
//
// # Configuration
//
// LoadOptions maps viper keys onto Options, so a crawl can be configured from
// a file or the environment:
//
//	v := viper.New()
//	v.SetConfigFile(".fcrawl.yaml")
//	_ = v.ReadInConfig()
//	opts, err := crawl.LoadOptions(v)
//	out, err := crawl.Crawl(".", opts).Sync()
//
// # Watching
//
// Watch reports changes below a tree, registering the directories a crawl
// discovers:
//
//	err := crawl.Watch(ctx, "/path/to/watch", crawl.WatchOptions{Recursive: true}, nil)
package crawl
