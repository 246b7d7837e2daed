// Package build produces the production output of a myvite project.
//
// The entry module is bundled with esbuild: components are compiled by the
// sfc compiler through a plugin, their styles are extracted to CSS, and
// chunks and assets get content-hashed names under the assets directory.
// index.html is rewritten to load the built files and public/ is copied
// verbatim.
//
// # Usage
//
//	builder := build.New(cfg, build.Options{Compiler: compiler})
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Built in %s\n", result.Duration)
//
// # Output Structure
//
//	dist/
//	├── index.html
//	├── assets/
//	│   ├── main-7DKQ2VXA.js
//	│   ├── main-HNBF3L5P.css
//	│   └── logo-Q4SZ3I6M.png
//	├── favicon.ico        # from public/
//	└── manifest.json
//
// # Manifest
//
// The manifest maps the entry's source path to its built files:
//
//	{
//	  "src/main.ts": {
//	    "file": "assets/main-7DKQ2VXA.js",
//	    "src": "src/main.ts",
//	    "isEntry": true,
//	    "css": ["assets/main-HNBF3L5P.css"]
//	  }
//	}
//
// Publisher uploads the output directory to an S3 bucket.
package build
