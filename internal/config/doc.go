// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package config loads the process configuration: an optional HCL file,
// overridden by RIGGRAPH_* environment variables, overridden in turn by
// command-line flags applied by the caller.
//
// A configuration file looks like:
//
//	log_level      = "debug"
//	log_format     = "text"
//	default_target = "maya"
//	library_paths  = ["libs", "${env.HOME}/rigs"]
//
//	relay {
//	  address = "localhost:7777"
//	  path    = "/socket.io/"
//	}
//
// Relative library paths are resolved against the directory of the file.
// The env object exposes the process environment to expressions.
package config
