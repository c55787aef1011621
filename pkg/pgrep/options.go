package pgrep

import (
	"strings"
)

// Options are the pgrep selection criteria.
type Options struct {
	Pattern    string
	Full       bool
	IgnoreCase bool
	Exact      bool
	Invert     bool
	Newest     bool
	Oldest     bool
	Users      []string
	RealUsers  []string
	PGroups    []string
	Groups     []string
	Parents    []string
	Sessions   []string
	Terminals  []string
	PidFile    string
	Ns         string
	NsList     []string
}

// Empty reports whether no criteria are set at all.
func (o Options) Empty() bool {
	return o.Pattern == "" && !o.Full && !o.IgnoreCase && !o.Exact && !o.Invert &&
		!o.Newest && !o.Oldest && len(o.Users) == 0 && len(o.RealUsers) == 0 &&
		len(o.PGroups) == 0 && len(o.Groups) == 0 && len(o.Parents) == 0 &&
		len(o.Sessions) == 0 && len(o.Terminals) == 0 && o.PidFile == "" &&
		o.Ns == "" && len(o.NsList) == 0
}

// Argv returns the equivalent pgrep command line arguments.
func (o Options) Argv() []string {
	var argv []string
	flags := []struct {
		set  bool
		flag string
	}{
		{o.Full, "-f"},
		{o.Exact, "-x"},
		{o.Invert, "-v"},
		{o.IgnoreCase, "-i"},
		{o.Newest, "-n"},
		{o.Oldest, "-o"},
	}
	for _, f := range flags {
		if f.set {
			argv = append(argv, f.flag)
		}
	}

	lists := []struct {
		values []string
		flag   string
	}{
		{o.Users, "-u"},
		{o.RealUsers, "-U"},
		{o.PGroups, "-g"},
		{o.Groups, "-G"},
		{o.Parents, "-P"},
		{o.Sessions, "-s"},
		{o.Terminals, "-t"},
	}
	for _, l := range lists {
		if len(l.values) > 0 {
			argv = append(argv, l.flag, strings.Join(l.values, ","))
		}
	}
	if o.PidFile != "" {
		argv = append(argv, "-F", o.PidFile)
	}
	if o.Ns != "" {
		argv = append(argv, "--ns", o.Ns)
	}
	if len(o.NsList) > 0 {
		argv = append(argv, "--nslist", strings.Join(o.NsList, ","))
	}
	if o.Pattern != "" {
		argv = append(argv, o.Pattern)
	}
	return argv
}

// unsupported lists the options the builtin matcher cannot evaluate from a snapshot.
func (o Options) unsupported() []string {
	var names []string
	add := func(set bool, flag string) {
		if set {
			names = append(names, flag)
		}
	}
	add(o.Newest, "-n")
	add(o.Oldest, "-o")
	add(len(o.RealUsers) > 0, "-U")
	add(len(o.PGroups) > 0, "-g")
	add(len(o.Groups) > 0, "-G")
	add(len(o.Sessions) > 0, "-s")
	add(len(o.Terminals) > 0, "-t")
	add(o.PidFile != "", "-F")
	add(o.Ns != "", "--ns")
	add(len(o.NsList) > 0, "--nslist")
	return names
}
