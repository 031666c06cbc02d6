package main

import (
	"github.com/spf13/viper"
)

// GetConfigInt retrieves an int config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (MLC_*)
// 3. Config file
// 4. Default value
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value, falling back to the default
// when the key is absent everywhere (viper cannot distinguish false from
// unset, so absence is checked explicitly)
func GetConfigBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}
