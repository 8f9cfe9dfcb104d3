package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/reoring/mapmarshal"
	"github.com/reoring/mapmarshal/codec"
	"github.com/reoring/mapmarshal/schemaconf"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "check":
		checkCmd(os.Args[2:])
	case "convert":
		convertCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "mapmarshal CLI\n\nUsage:\n  mapmarshal check -schema schema.yaml [-v]\n  mapmarshal convert -from json -to yaml [file]\n\nNotes:\n  - check loads a schema configuration and reports dangling references.\n  - convert re-encodes a document keeping key order; it reads stdin when no file is given.")
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var path string
	var verbose bool
	fs.StringVar(&path, "schema", "", "schema configuration file (.yaml, .yml or .json)")
	fs.BoolVar(&verbose, "v", false, "print every entry")
	_ = fs.Parse(args)
	if path == "" {
		fs.Usage()
		os.Exit(2)
	}

	reg, err := schemaconf.LoadFile(path)
	if err != nil {
		fatalf("loading %s: %v", path, err)
	}
	if verbose {
		for _, ref := range reg.Refs() {
			e, _ := reg.Lookup(ref)
			fmt.Println(describe(ref, e))
		}
	}
	if missing := reg.CheckRefs(); len(missing) > 0 {
		fatalf("%s: undefined references: %s", path, strings.Join(missing, ", "))
	}
	fmt.Printf("%s: %d entries ok\n", path, len(reg.Refs()))
}

// describe renders an entry on one line, e.g.
// Item (Item): name string, position->pos ref(Point) [type: text=TextItem]
func describe(ref string, e *mapmarshal.Entry) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s (%s):", ref, e.TypeID)
	for i, p := range e.Properties {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(p.Name)
		if p.OutputName != p.Name {
			b.WriteString("->")
			b.WriteString(p.OutputName)
		}
		b.WriteString(" ")
		b.WriteString(p.Type.String())
	}
	if len(e.ConstructorArgs) > 0 {
		fmt.Fprintf(b, " new(%s)", strings.Join(e.ConstructorArgs, ", "))
	}
	if d := e.Discriminator; d != nil {
		tags := make([]string, 0, len(d.Values))
		for tag, target := range d.Values {
			tags = append(tags, tag+"="+target)
		}
		sort.Strings(tags)
		fmt.Fprintf(b, " [%s: %s]", d.OutputName, strings.Join(tags, " "))
	}
	return b.String()
}

func convertCmd(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	var from, to string
	fs.StringVar(&from, "from", "json", "input format: json, yaml or msgpack")
	fs.StringVar(&to, "to", "yaml", "output format: json, yaml or msgpack")
	_ = fs.Parse(args)

	in, err := documentCodec(from)
	if err != nil {
		fatalf("%v", err)
	}
	out, err := documentCodec(to)
	if err != nil {
		fatalf("%v", err)
	}

	var data []byte
	if fs.NArg() > 0 {
		data, err = os.ReadFile(fs.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fatalf("reading input: %v", err)
	}

	doc := mapmarshal.NewMapping(0)
	if err := in.Unmarshal(data, doc); err != nil {
		fatalf("decoding %s: %v", in.Name(), err)
	}
	b, err := out.Marshal(doc)
	if err != nil {
		fatalf("encoding %s: %v", out.Name(), err)
	}
	if _, err := os.Stdout.Write(b); err != nil {
		fatalf("writing output: %v", err)
	}
}

func documentCodec(name string) (codec.Document, error) {
	switch strings.ToLower(name) {
	case "json":
		return codec.JSON(), nil
	case "yaml", "yml":
		return codec.YAML(), nil
	case "msgpack", "mp":
		return codec.MsgPack(), nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
