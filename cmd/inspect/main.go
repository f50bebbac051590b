package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/strand"
	"github.com/wippyai/strand/codec"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to a file holding raw string bytes")
		text        = flag.String("text", "", "Literal UTF-8 text to inspect")
		encName     = flag.String("enc", "utf-8", "Encoding of the input bytes")
		target      = flag.String("to", "", "Transcode to this encoding and show the result")
		find        = flag.String("find", "", "Report the first occurrence of this substring")
		hexDump     = flag.Bool("hex", false, "Dump the backing bytes")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*text); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *file == "" && *text == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -text <string> [-to enc] [-find s] [-hex]")
		fmt.Fprintln(os.Stderr, "       inspect -file <path> -enc <encoding> [...]")
		fmt.Fprintln(os.Stderr, "       inspect -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*file, *text, *encName, *target, *find, *hexDump); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(file, text, encName, targetName, find string, hexDump bool) error {
	var s *strand.String
	if file != "" {
		enc, err := parseEncoding(encName)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		s, err = strand.Decode(data, enc, true)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		fmt.Printf("Input: %s (%s)\n", file, enc)
	} else {
		s = strand.FromGoString(text)
		fmt.Printf("Input: %q (utf-8)\n", text)
	}

	if err := printAttrs(s); err != nil {
		return err
	}

	if hexDump {
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		fmt.Printf("Bytes: % x\n", b)
	}

	if find != "" {
		needle, err := strand.FromGoString(find).Transcode(s.Encoding(), strand.Default)
		if err != nil {
			return fmt.Errorf("needle: %w", err)
		}
		at, err := s.IndexOfString(needle, 0, s.Length())
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if at < 0 {
			fmt.Printf("Find %q: not found\n", find)
		} else {
			fmt.Printf("Find %q: raw index %d\n", find, at)
		}
	}

	if targetName != "" {
		target, err := parseEncoding(targetName)
		if err != nil {
			return err
		}
		out, err := s.Transcode(target, strand.Default)
		if err != nil {
			return fmt.Errorf("transcode: %w", err)
		}
		fmt.Printf("\nTranscoded to %s:\n", target)
		if err := printAttrs(out); err != nil {
			return err
		}
		b, err := out.Bytes()
		if err != nil {
			return err
		}
		fmt.Printf("Bytes: % x\n", b)
	}
	return nil
}

func printAttrs(s *strand.String) error {
	cr, err := s.CodeRange()
	if err != nil {
		return err
	}
	cpLen, err := s.CodePointLength()
	if err != nil {
		return err
	}
	fixed, err := s.IsFixedWidth()
	if err != nil {
		return err
	}
	hash, err := s.HashCode()
	if err != nil {
		return err
	}

	fmt.Printf("Encoding:    %s\n", s.Encoding())
	fmt.Printf("Bytes:       %d\n", s.ByteLength())
	fmt.Printf("Units:       %d (stride %d, %d byte(s)/unit)\n", s.Length(), s.Stride(), 1<<s.Stride())
	fmt.Printf("Codepoints:  %d\n", cpLen)
	fmt.Printf("Code range:  %s\n", cr)
	fmt.Printf("Fixed width: %v\n", fixed)
	fmt.Printf("Replaced:    %v\n", s.Replaced())
	fmt.Printf("Hash:        %016x\n", hash)
	return nil
}

var encodingNames = map[string]codec.Encoding{
	"utf-8":    codec.UTF8,
	"utf8":     codec.UTF8,
	"utf-16le": codec.UTF16LE,
	"utf-16":   codec.UTF16LE,
	"utf-16be": codec.UTF16BE,
	"utf-32le": codec.UTF32LE,
	"utf-32":   codec.UTF32LE,
	"utf-32be": codec.UTF32BE,
	"ascii":    codec.ASCII,
	"latin-1":  codec.Latin1,
	"latin1":   codec.Latin1,
	"bytes":    codec.Bytes,
}

func parseEncoding(name string) (codec.Encoding, error) {
	if enc, ok := encodingNames[strings.ToLower(name)]; ok {
		return enc, nil
	}
	return 0, fmt.Errorf("unknown encoding %q", name)
}
