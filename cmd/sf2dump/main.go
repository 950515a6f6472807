// Command sf2dump prints the INFO metadata and the bank/preset tree of a
// SoundFont file as YAML.
package main

import (
	"flag"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AnonN10/sf2"
	"github.com/AnonN10/sf2/sf2file"
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: sf2dump path/to/bank.sf2")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	stream := sf2file.NewBytesStream(data)
	file, err := sf2file.Parse(stream)
	if err != nil {
		log.Fatalf("parse %s: %v", flag.Arg(0), err)
	}
	bank, err := sf2.New(file, stream, sf2.LoadConfig{})
	if err != nil {
		log.Fatalf("compile bank: %v", err)
	}

	if n := bank.CoercedSampleLinks(); n > 0 {
		log.Printf("warning: %d sample(s) had invalid stereo links and were coerced to mono", n)
	}

	out, err := yaml.Marshal(sf2.Describe(bank))
	if err != nil {
		log.Fatal(err)
	}
	os.Stdout.Write(out)
}
