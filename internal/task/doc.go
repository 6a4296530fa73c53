// Package task defines the unit of work the scheduler places and runs,
// and the wire formats used to carry results and file descriptors
// between hosts.
package task
