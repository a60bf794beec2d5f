// Package config provides configuration loading and validation for Ganymede.
//
// Configuration is loaded from a YAML file, defaults are applied for any
// unset fields, and the result is validated before use. Environment
// variables using the GANYMEDE_SECTION_FIELD naming convention override
// file-based values.
//
// # Loading Sequence
//
//  1. Parse YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides (optional)
//  4. Validate final configuration
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Server.ListenAddress)
//
// The credentials section of the file can be watched for changes with
// Watcher, which re-reads the file and hands newly declared credentials
// to a registration callback. Registration is append-only: removing a
// credential from the file does not revoke it from a running process.
package config
