package stats

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	db "cfsos/debug"
)

// XXX separate cache lines
type StatInfo struct {
	Nfork     Tcounter
	Nforkfail Tcounter
	Nexit     Tcounter
	Nwait     Tcounter
	Nkill     Tcounter
	Nsleep    Tcounter
	Nwakeup   Tcounter
	Nyield    Tcounter
	Nswitch   Tcounter
	Ndispatch Tcounter
	Nidle     Tcounter
	Ntimer    Tcounter
	Nfault    Tcounter
	Nsyscall  Tcounter
	Ninstr    Tcounter
	Nticks    Tcounter
	Nlive     Tcounter
	MaxProcs  Tcounter
}

func NewStatInfo() *StatInfo {
	return &StatInfo{}
}

// Snapshot copies the counters while concurrent Inc()s may happen.
func (si *StatInfo) Snapshot() map[string]int64 {
	m := make(map[string]int64)
	v := reflect.ValueOf(si).Elem()
	for i := 0; i < v.NumField(); i++ {
		if c, ok := v.Field(i).Addr().Interface().(*Tcounter); ok {
			m[v.Type().Field(i).Name] = Read(c)
		}
	}
	return m
}

func (si *StatInfo) Json() []byte {
	data, err := json.Marshal(si.Snapshot())
	if err != nil {
		db.DFatalf("stats: json failed %v\n", err)
	}
	return data
}

func (si *StatInfo) String() string {
	m := si.Snapshot()
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	var sb strings.Builder
	sb.WriteString("&{")
	for _, k := range ks {
		fmt.Fprintf(&sb, " %v:%d", k, m[k])
	}
	sb.WriteString(" }")
	return sb.String()
}
