// Package driver is the user-facing façade: it owns the cluster's host
// list, this process's position in it, the job-id allocator, and the
// messaging listener every job's scheduler attaches to while it runs.
package driver
