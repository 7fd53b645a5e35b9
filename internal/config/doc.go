// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is read from <UserConfigDir>/wslget/config.cue (%APPDATA%\wslget\config.cue
// on Windows), validated against the embedded config_schema.cue, layered over built-in
// defaults and finally overridden by WSLGET_* environment variables.
package config
