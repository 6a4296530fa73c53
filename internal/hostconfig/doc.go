// Package hostconfig parses the static host file the driver uses to
// discover cluster members and overlays environment/flag configuration
// on top of it via viper. Hosts that omit thread/memory figures have
// them filled in from local gopsutil readings when the process that
// owns that host address runs this code.
package hostconfig
