// Package config loads dashkit configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. built-in defaults (New)
//  2. dashkit.json, found in the working directory or a parent
//  3. DASHKIT_* environment variables
//
// Command-line flags are applied on top by cmd/dashkit.
//
// # Configuration File Structure
//
//	{
//	  "user": "u1",
//	  "api": {
//	    "baseURL": "https://api.example.com/api",
//	    "timeout": "15s",
//	    "rateLimit": 10,
//	    "rateBurst": 5
//	  },
//	  "upload": {
//	    "backend": "s3",
//	    "maxFileSize": 5242880,
//	    "s3": {
//	      "bucket": "gallery",
//	      "region": "ap-south-1",
//	      "publicBaseURL": "https://cdn.example.com"
//	    }
//	  },
//	  "session": {"ttl": "168h"},
//	  "server": {"addr": ":8080"},
//	  "log": {"level": "info", "format": "text"}
//	}
//
// Every field has an environment name built from its section, for example
// DASHKIT_API_BASE_URL, DASHKIT_UPLOAD_S3_BUCKET or DASHKIT_SESSION_SECRET.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
