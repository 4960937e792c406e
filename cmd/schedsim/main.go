// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Command schedsim is an in-process admin console: a single pool lives
// inside this process, and the REPL below plays the role the excluded
// network admin API would otherwise serve (register/submit/inspect).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/talex5/build-scheduler/internal/cachedao"
	"github.com/talex5/build-scheduler/internal/hostinfo"
	"github.com/talex5/build-scheduler/internal/item"
	"github.com/talex5/build-scheduler/internal/pool"
)

func main() {
	root := &cobra.Command{
		Use:   "schedsim",
		Short: "interactive console for a single in-process scheduler pool",
		RunE:  runConsole,
	}
	root.Flags().String("cache-db", ":memory:", "sqlite path for the console's cache DAO")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConsole(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("cache-db")
	dao, err := cachedao.Open(path, 256)
	if err != nil {
		return fmt.Errorf("open cache db: %w", err)
	}
	defer dao.Close()

	c := &console{
		pool:      pool.New("sim", dao),
		collector: hostinfo.NewCollector("."),
		workers:   make(map[string]*pool.Worker),
	}

	fmt.Println("schedsim: type 'help' for commands, 'quit' to exit")
	p := prompt.New(c.execute, c.complete, prompt.OptionPrefix("schedsim> "))
	p.Run()
	return nil
}

// console holds the REPL's view of one pool: the workers it has
// registered and, for each, the goroutine popping its items so the
// operator can watch delivery happen live.
type console struct {
	pool      *pool.Pool
	collector *hostinfo.Collector
	workers   map[string]*pool.Worker
}

func (c *console) complete(d prompt.Document) []prompt.Suggest {
	cmds := []prompt.Suggest{
		{Text: "register", Description: "register <worker>"},
		{Text: "activate", Description: "activate <worker>"},
		{Text: "deactivate", Description: "deactivate <worker>"},
		{Text: "release", Description: "release <worker>"},
		{Text: "submit", Description: "submit <label> [urgent] [hint]"},
		{Text: "workers", Description: "list registered workers"},
		{Text: "show", Description: "render pool and host status"},
		{Text: "quit", Description: "exit the console"},
	}
	return prompt.FilterHasPrefix(cmds, d.GetWordBeforeCursor(), true)
}

func (c *console) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Println("register|activate|deactivate|release <worker>; submit <label> [urgent] [hint]; workers; show; quit")
	case "register":
		c.cmdRegister(args)
	case "activate":
		c.cmdSetActive(args, true)
	case "deactivate":
		c.cmdSetActive(args, false)
	case "release":
		c.cmdRelease(args)
	case "submit":
		c.cmdSubmit(args)
	case "workers":
		c.cmdWorkers()
	case "show":
		c.cmdShow()
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Printf("unknown command %q\n", cmd)
	}
}

func (c *console) cmdRegister(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: register <worker>")
		return
	}
	w, err := c.pool.Register(args[0])
	if err != nil {
		color.Red("register failed: %v", err)
		return
	}
	c.workers[args[0]] = w
	fmt.Printf("registered %s (inactive)\n", args[0])
}

func (c *console) cmdSetActive(args []string, active bool) {
	if len(args) != 1 {
		fmt.Println("usage: activate|deactivate <worker>")
		return
	}
	w, ok := c.workers[args[0]]
	if !ok {
		color.Red("no such worker %q", args[0])
		return
	}
	w.SetActive(active)
	if active {
		go c.popLoop(w)
	}
	fmt.Printf("%s is now active=%v\n", args[0], active)
}

func (c *console) cmdRelease(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: release <worker>")
		return
	}
	w, ok := c.workers[args[0]]
	if !ok {
		color.Red("no such worker %q", args[0])
		return
	}
	if err := w.Release(); err != nil {
		color.Red("release failed: %v", err)
		return
	}
	delete(c.workers, args[0])
	fmt.Printf("released %s\n", args[0])
}

func (c *console) cmdSubmit(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: submit <label> [urgent] [hint]")
		return
	}
	label := args[0]
	urgent := len(args) > 1 && args[1] == "urgent"
	hint := ""
	if len(args) > 2 {
		hint = args[2]
	}
	it := item.NewBasic(label, hint, 50, 200)
	ticket := c.pool.Submit(it, urgent)
	urgentLabel := "low"
	if urgent {
		urgentLabel = color.YellowString("urgent")
	}
	fmt.Printf("submitted %s ticket=%s priority=%s\n", label, ticket.ID, urgentLabel)
}

// popLoop runs for the lifetime of one active worker, printing each item
// it receives so the operator can watch placement decisions happen.
func (c *console) popLoop(w *pool.Worker) {
	for {
		it, err := w.Pop(context.Background())
		if err != nil {
			return
		}
		fmt.Printf("%s <- %s\n", color.GreenString(w.Name()), it)
	}
}

func (c *console) cmdWorkers() {
	names := c.pool.WorkerNames()
	if len(names) == 0 {
		fmt.Println("(no workers registered)")
		return
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"worker", "workload", "queue len"})
	for _, name := range names {
		w, ok := c.pool.Worker(name)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{name, w.Stats().Workload.Load(), w.Stats().QueueLen.Load()})
	}
	fmt.Println(t.Render())
}

func (c *console) cmdShow() {
	stats := c.pool.Stats()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"connected workers", stats.ConnectedWorkers.Load()})
	t.AppendRow(table.Row{"paused workers", stats.PausedWorkers.Load()})
	t.AppendRow(table.Row{"ready workers", stats.ReadyWorkers.Load()})
	t.AppendRow(table.Row{"backlog high", stats.BacklogHighLength.Load()})
	t.AppendRow(table.Row{"backlog low", stats.BacklogLowLength.Load()})
	t.AppendRow(table.Row{"submitted", stats.Submitted.Load()})
	t.AppendRow(table.Row{"accepted", stats.Accepted.Load()})
	t.AppendRow(table.Row{"cancelled", stats.Cancelled.Load()})
	t.AppendRow(table.Row{"gate active", strconv.FormatBool(c.pool.GateActive())})
	fmt.Println(t.Render())

	snap := c.collector.Collect(context.Background())
	if snap.Memory != nil {
		fmt.Printf("host memory: %.1f%% used\n", snap.Memory.UsedPercent)
	}
}
