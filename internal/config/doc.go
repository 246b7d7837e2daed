// Package config provides configuration parsing for myvite projects.
//
// The configuration is stored in myvite.json (or myvite.yaml / myvite.yml)
// at the project root. This package handles loading, defaulting and
// validating configuration, and reading the project's .env files.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 5173,
//	    "proxy": {
//	      "/api": "http://localhost:8080"
//	    },
//	    "watch": {
//	      "ignore": ["*.log"],
//	      "settle": "50ms"
//	    }
//	  },
//	  "build": {
//	    "outDir": "dist",
//	    "assetsDir": "assets",
//	    "publish": {
//	      "bucket": "my-site",
//	      "region": "eu-west-1"
//	    }
//	  },
//	  "resolve": {
//	    "alias": { "@": "/src" }
//	  },
//	  "compiler": { "mode": "auto" }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Server.Port)
package config
