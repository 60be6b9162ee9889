//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package devutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial/enumerator"
)

// USB vendors of the serial bridges ISP programmers are built around.
var knownBridges = map[string]string{
	"0403": "FTDI",
	"10c4": "Silicon Labs",
	"1a86": "WCH",
	"067b": "Prolific",
	"1fc9": "NXP",
}

type PortInfo struct {
	Name string
	USB  bool
	// USB details, empty if not a USB device or not known.
	VID, PID string
	Serial   string
	Product  string
}

func (pi PortInfo) String() string {
	if pi.VID == "" {
		return pi.Name
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (USB %s:%s", pi.Name, strings.ToLower(pi.VID), strings.ToLower(pi.PID))
	if pi.Product != "" {
		fmt.Fprintf(&sb, ", %s", pi.Product)
	} else if v := knownBridges[strings.ToLower(pi.VID)]; v != "" {
		fmt.Fprintf(&sb, ", %s", v)
	}
	if pi.Serial != "" {
		fmt.Fprintf(&sb, ", s/n %s", pi.Serial)
	}
	sb.WriteString(")")
	return sb.String()
}

// score orders candidates for --port auto. Zero means never pick it
// automatically.
func (pi PortInfo) score() int {
	switch {
	case knownBridges[strings.ToLower(pi.VID)] != "":
		return 3
	case pi.USB:
		return 2
	case onboardPort(pi.Name):
		return 0
	}
	return 1
}

// ListPorts returns the serial ports of the system. USB details are added
// if requested and available.
func ListPorts(details bool) []PortInfo {
	ports := systemPorts()
	res := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		res = append(res, PortInfo{Name: p})
	}
	if details {
		dl, err := enumerator.GetDetailedPortsList()
		if err != nil {
			glog.Warningf("failed to get port details: %s", err)
			return res
		}
		addDetails(res, dl)
	}
	return res
}

func addDetails(ports []PortInfo, dl []*enumerator.PortDetails) {
	byName := map[string]*enumerator.PortDetails{}
	for _, d := range dl {
		byName[d.Name] = d
	}
	for i := range ports {
		d := byName[ports[i].Name]
		if d == nil || !d.IsUSB {
			continue
		}
		ports[i].USB = true
		ports[i].VID = d.VID
		ports[i].PID = d.PID
		ports[i].Serial = d.SerialNumber
		ports[i].Product = d.Product
	}
}

// rankPorts returns the ports that may be picked automatically, best
// first. Ports of equal score keep the system order.
func rankPorts(ports []PortInfo) []PortInfo {
	var res []PortInfo
	for _, p := range ports {
		if p.score() > 0 {
			res = append(res, p)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].score() > res[j].score() })
	return res
}
