// Command addrtool is a small operator utility over a persisted address
// manager file: it can reseed one from scratch, print a diagnostic JSON
// dump of its contents, or run a single Select draw against it, without
// needing to wire up the rest of a node.
package main

import (
	"fmt"
	"net"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/pkt-cash/addrd/addrmgr"
	"github.com/pkt-cash/addrd/er"
	"github.com/pkt-cash/addrd/pktlog/log"
)

// lookupSeed resolves a DNS seed hostname via the standard resolver,
// adapting net.LookupIP's error return to this module's er.R convention.
func lookupSeed(host string) ([]net.IP, er.R) {
	ips, err := net.LookupIP(host)
	return ips, er.E(err)
}

type options struct {
	File    string   `short:"f" long:"file" description:"path to the address manager state file" required:"true"`
	Network uint32   `short:"n" long:"network" description:"network magic" default:"3652501241"`
	Port    uint16   `short:"p" long:"port" description:"default peer port for seed resolution" default:"8333"`
	Seeds   []string `long:"seed" description:"DNS seed hostname, may be repeated"`
	Reseed  bool     `long:"reseed" description:"ignore any existing file and reseed from scratch"`
	Dump    bool     `long:"dump" description:"print a diagnostic JSON snapshot and exit"`
	Select  bool     `long:"select" description:"print one Select() draw and exit"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	m := addrmgr.New(opts.Network, opts.Port, lookupSeed)
	m.SetSeeds(opts.Seeds)

	flagSet := addrmgr.OpenDefault
	if opts.Reseed {
		flagSet = addrmgr.OpenForceReseed
	}
	m.Open(opts.File, flagSet)

	if opts.Dump {
		data, errR := m.DebugJSON()
		if errR != nil {
			log.Errorf("dump failed: %v", errR)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	if opts.Select {
		addr := m.Select()
		if addr == nil {
			fmt.Println("(no addresses known)")
		} else {
			fmt.Printf("%s:%d\n", addr.ToIP(), addr.Port)
		}
	}

	if err := m.Flush(); err != nil {
		log.Errorf("flush failed: %v", err)
		os.Exit(1)
	}
}
