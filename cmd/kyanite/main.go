package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dlclark/regexp2"
	"github.com/mattn/go-isatty"

	"kyanite/pkg/manifest"
	"kyanite/pkg/vm"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
	colorCyan  = "\x1b[36m"
	colorDim   = "\x1b[2m"
)

func main() {
	manifestFlag := flag.String("manifest", "", "Class manifest file to load")
	filterFlag := flag.String("filter", "", "Only show members matching this regular expression")
	allFlag := flag.Bool("all", false, "Include non-enumerable members")
	noColorFlag := flag.Bool("no-color", false, "Disable colored output")

	flag.Parse()

	if *manifestFlag == "" || flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Usage: kyanite -manifest <file.yaml> [-filter <regex>] [-all]\n")
		os.Exit(64) // Exit code 64: command line usage error
	}

	var filter *regexp2.Regexp
	if *filterFlag != "" {
		re, err := regexp2.Compile(*filterFlag, regexp2.ECMAScript)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kyanite: bad -filter pattern: %v\n", err)
			os.Exit(64)
		}
		filter = re
	}

	m, err := manifest.Load(*manifestFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyanite: %v\n", err)
		os.Exit(65) // Exit code 65: data format error
	}

	engine := vm.NewVM()
	classes, err := m.Register(engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyanite: %v\n", err)
		os.Exit(65)
	}

	color := !*noColorFlag && isatty.IsTerminal(os.Stdout.Fd())
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := describeClass(engine, name, classes[name], filter, *allFlag, color); err != nil {
			fmt.Fprintf(os.Stderr, "kyanite: %v\n", err)
			os.Exit(70) // Exit code 70: internal software error
		}
	}
}

// describeClass instantiates the class and prints its resolved members.
func describeClass(engine *vm.VM, name string, class *vm.ClassDescriptor, filter *regexp2.Regexp, includeAll, color bool) error {
	obj := engine.NewCallbackObject(class, nil)
	defer engine.FinalizeCallbackObject(obj)

	header := name
	if parent := class.Parent(); parent != nil {
		header += " : " + parent.Name()
	}
	if color {
		fmt.Printf("%s%s%s%s\n", colorBold, colorCyan, header, colorReset)
	} else {
		fmt.Println(header)
	}

	members, err := engine.OwnPropertyNames(obj, includeAll)
	if err != nil {
		return err
	}
	sort.Strings(members)
	for _, member := range members {
		if filter != nil {
			match, err := filter.MatchString(member)
			if err != nil {
				return err
			}
			if !match {
				continue
			}
		}
		value, err := engine.GetProp(obj, member)
		if err != nil {
			if excVal, ok := vm.IsException(err); ok {
				printMember(member, "! "+excVal.ToString(), color)
				continue
			}
			return err
		}
		printMember(member, value.ToString(), color)
	}
	return nil
}

func printMember(name, rendered string, color bool) {
	if color {
		fmt.Printf("  %s%s%s = %s\n", colorBold, name, colorReset, colorDim+rendered+colorReset)
		return
	}
	fmt.Printf("  %s = %s\n", name, rendered)
}
