package hostconfig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/viper"
)

// Host describes one cluster member: its address, thread capacity,
// available memory in megabytes, and the port it listens for peer
// traffic on.
type Host struct {
	Address    string
	Threads    int
	MemoryMB   int
	ListenPort int
}

// Config is the fully resolved cluster configuration: the host list,
// the master's address, and this process's own listen port.
type Config struct {
	Hosts      []Host
	Master     string
	ListenPort int
}

// ParseHostFile reads a host file in the "address threads memory
// listen-port" format, one host per line. Lines that are empty or start
// with '#' are skipped. Fields left blank (just "address") default
// threads/memory to 0, to be filled in later by FillLocalCapacity.
func ParseHostFile(r io.Reader) ([]Host, error) {
	var hosts []Host
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		host := Host{Address: fields[0]}
		var err error
		if len(fields) > 1 {
			if host.Threads, err = strconv.Atoi(fields[1]); err != nil {
				return nil, fmt.Errorf("hostconfig: line %d: invalid threads: %w", lineNum, err)
			}
		}
		if len(fields) > 2 {
			if host.MemoryMB, err = strconv.Atoi(fields[2]); err != nil {
				return nil, fmt.Errorf("hostconfig: line %d: invalid memory: %w", lineNum, err)
			}
		}
		if len(fields) > 3 {
			if host.ListenPort, err = strconv.Atoi(fields[3]); err != nil {
				return nil, fmt.Errorf("hostconfig: line %d: invalid listen port: %w", lineNum, err)
			}
		}
		hosts = append(hosts, host)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("hostconfig: reading host file: %w", err)
	}
	return hosts, nil
}

// FillLocalCapacity fills in Threads/MemoryMB for the host at
// selfIndex when they are still zero, using gopsutil readings of the
// local machine. It is a no-op for every other index, since this
// process can only introspect its own capacity.
func FillLocalCapacity(hosts []Host, selfIndex int) error {
	if selfIndex < 0 || selfIndex >= len(hosts) {
		return fmt.Errorf("hostconfig: self index %d out of range", selfIndex)
	}
	h := &hosts[selfIndex]
	if h.Threads == 0 {
		counts, err := cpu.Counts(true)
		if err != nil {
			return fmt.Errorf("hostconfig: detecting cpu count: %w", err)
		}
		h.Threads = counts
	}
	if h.MemoryMB == 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return fmt.Errorf("hostconfig: detecting memory: %w", err)
		}
		h.MemoryMB = int(vm.Available / (1024 * 1024))
	}
	return nil
}

// LoadOverlay overlays environment-variable and flag-sourced config
// (master address, listen port) onto a parsed host list using viper.
// Recognized keys: SUNWAY_MASTER, SUNWAY_LISTEN_PORT.
func LoadOverlay(hosts []Host, defaultMaster string, defaultPort int) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SUNWAY")
	v.AutomaticEnv()
	v.SetDefault("master", defaultMaster)
	v.SetDefault("listen_port", defaultPort)

	return &Config{
		Hosts:      hosts,
		Master:     v.GetString("master"),
		ListenPort: v.GetInt("listen_port"),
	}, nil
}
