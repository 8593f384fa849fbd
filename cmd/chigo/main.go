// Command chigo inspects and manipulates B-Tree database files. It
// provides commands for dumping the file header, dumping nodes, and
// inserting or looking up entries.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/msAlcantara/chigo"
)

// CLI defines the command-line interface for chigo.
var CLI struct {
	Config string `name:"config" short:"c" help:"Path to YAML config file" type:"path"`
	Debug  bool   `help:"Enable debug logging"`

	Header HeaderCmd `cmd:"" help:"Print the parsed file header"`
	Node   NodeCmd   `cmd:"" help:"Dump a node and its cells"`
	Insert InsertCmd `cmd:"" help:"Insert an entry into a table or index tree"`
	Find   FindCmd   `cmd:"" help:"Look up a key"`
}

// HeaderCmd prints the file header fields.
type HeaderCmd struct {
	Database string `arg:"" optional:"" help:"Database file" type:"path"`
}

func (c *HeaderCmd) Run(cfg *Config) error {
	bt, err := chigo.Open(cfg.database(c.Database))
	if err != nil {
		return err
	}
	defer bt.Close()

	header, err := bt.ReadHeader()
	if err != nil {
		return err
	}
	fmt.Printf("page size:           %d\n", header.PageSize())
	fmt.Printf("file change counter: %d\n", header.FileChangeCounter())
	fmt.Printf("page cache size:     %d\n", header.PageCacheSize())
	fmt.Printf("user version:        %d\n", header.UserVersion())
	fmt.Printf("total pages:         %d\n", bt.Pager().TotalPages())
	return nil
}

// NodeCmd dumps a node header and its decoded cells.
type NodeCmd struct {
	Database string `arg:"" optional:"" help:"Database file" type:"path"`
	Page     uint32 `help:"Page number of the node" default:"1"`
}

func (c *NodeCmd) Run(cfg *Config) error {
	bt, err := chigo.Open(cfg.database(c.Database))
	if err != nil {
		return err
	}
	defer bt.Close()

	node, err := bt.GetNodeByPage(c.Page)
	if err != nil {
		return err
	}
	defer bt.FreeMemNode(node)

	fmt.Printf("page %d: %s, %d cells, free [%d, %d)\n",
		c.Page, node.Type(), node.NCells(), node.FreeOffset(), node.CellsOffset())
	if node.Type().IsInternal() {
		fmt.Printf("right page: %d\n", node.RightPage())
	}

	for i := uint16(0); i < node.NCells(); i++ {
		cell, err := node.GetCell(i)
		if err != nil {
			return err
		}
		switch cell.Type() {
		case chigo.InternalTable:
			fmt.Printf("  %4d: key=%d child=%d\n", i, cell.Key(), cell.ChildPage())
		case chigo.LeafTable:
			fmt.Printf("  %4d: key=%d size=%d data=%q\n", i, cell.Key(), cell.DataSize(), cell.Data())
		case chigo.InternalIndex:
			fmt.Printf("  %4d: keyIdx=%d keyPk=%d child=%d\n", i, cell.Key(), cell.KeyPk(), cell.ChildPage())
		case chigo.LeafIndex:
			fmt.Printf("  %4d: keyIdx=%d keyPk=%d\n", i, cell.Key(), cell.KeyPk())
		}
	}
	return nil
}

// InsertCmd inserts a table row or an index entry.
type InsertCmd struct {
	Database string `arg:"" optional:"" help:"Database file" type:"path"`
	Root     uint32 `help:"Root page of the tree" default:"0"`
	Key      uint32 `required:"" help:"Entry key"`
	Data     string `help:"Row data (table trees)"`
	Index    bool   `help:"Insert into an index tree"`
	KeyPk    uint32 `name:"key-pk" help:"Primary key the index entry refers to"`
}

func (c *InsertCmd) Run(cfg *Config) error {
	bt, err := chigo.Open(cfg.database(c.Database))
	if err != nil {
		return err
	}
	defer bt.Close()

	root := cfg.root(c.Root)
	if c.Index {
		return bt.InsertInIndex(root, c.Key, c.KeyPk)
	}
	return bt.InsertInTable(root, c.Key, []byte(c.Data))
}

// FindCmd looks up a key and prints the row data.
type FindCmd struct {
	Database string `arg:"" optional:"" help:"Database file" type:"path"`
	Root     uint32 `help:"Root page of the tree" default:"0"`
	Key      uint32 `required:"" help:"Key to look up"`
}

func (c *FindCmd) Run(cfg *Config) error {
	bt, err := chigo.Open(cfg.database(c.Database))
	if err != nil {
		return err
	}
	defer bt.Close()

	data, err := bt.Find(cfg.root(c.Root), c.Key)
	if err != nil {
		return err
	}
	fmt.Printf("%q\n", data)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("chigo"),
		kong.Description("B-Tree database file inspector"),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(CLI.Config)
	ctx.FatalIfErrorf(err)

	level := cfg.logLevel()
	if CLI.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx.FatalIfErrorf(ctx.Run(cfg))
}
