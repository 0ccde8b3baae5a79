package sync

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cochaviz/kiln/arch"
	"github.com/cochaviz/kiln/internal/config"
	"github.com/cochaviz/kiln/internal/fileutil"
)

// writeDHCPConfig renders the config file for the managed DHCP server.
// Every interface with a MAC gets one reservation record; records are
// bucketed by the interface's boot tag and each bucket becomes a distinct
// variable in the template render. Interfaces without a MAC are skipped.
// Iteration is sorted by (system, interface) so output is reproducible.
func (r *run) writeDHCPConfig() error {
	mode := r.settings.ManageDHCPMode
	templateName := "dhcp.template"
	if mode == config.DHCPModeDnsmasq {
		templateName = "dnsmasq.template"
	}
	source, err := r.loadTemplate(templateName)
	if err != nil {
		return err
	}

	elilo := filepath.Base(r.settings.Bootloaders[arch.IA64.String()])
	buckets := map[string]string{}
	counter := 0

	systems := r.store.Systems()
	for i := range systems {
		system := &systems[i]
		blended, err := r.blender.System(system, false)
		if err != nil {
			return err
		}

		for _, ifaceName := range system.InterfaceNames() {
			iface := system.Interfaces[ifaceName]
			if iface.MAC == "" {
				// no reservation without a link-layer address
				continue
			}
			counter++

			var record string
			if mode == config.DHCPModeDnsmasq {
				// dnsmasq only needs arch tagging for loaders other
				// than pxelinux
				if iface.IP != "" && blended.Arch == arch.IA64 {
					record = fmt.Sprintf("dhcp-host=net:ia64,%s\n", iface.IP)
				}
			} else {
				host := iface.Hostname
				if host == "" {
					host = fmt.Sprintf("generic%d", counter)
				}
				var block strings.Builder
				fmt.Fprintf(&block, "\nhost %s {\n", host)
				if blended.Arch == arch.IA64 {
					fmt.Fprintf(&block, "    filename \"/%s\";\n", elilo)
				}
				fmt.Fprintf(&block, "    hardware ethernet %s;\n", iface.MAC)
				if iface.IP != "" {
					fmt.Fprintf(&block, "    fixed-address %s;\n", iface.IP)
				}
				block.WriteString("}\n")
				record = block.String()
			}

			tag := iface.DHCPTag
			if tag == "" {
				tag = "default"
			}
			buckets[tag] += record
		}
	}

	meta := map[string]any{
		"insert_reservations": buckets["default"],
		"date":                time.Now().UTC().Format(time.ANSIC),
		"server":              r.settings.Server,
		"next_server":         r.settings.NextServer,
		"elilo":               elilo,
	}
	tags := make([]string, 0, len(buckets))
	for tag := range buckets {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if tag == "default" {
			continue
		}
		meta["insert_reservations_"+tag] = buckets[tag]
	}

	_, err = r.renderer.Render(source, meta, r.settings.DHCPConfPath())
	return err
}

// writeEthers regenerates the MAC to IP table the lighter-weight DHCP
// manager reads. One line per interface that has both fields.
func (r *run) writeEthers() error {
	var builder strings.Builder
	systems := r.store.Systems()
	for i := range systems {
		system := &systems[i]
		for _, ifaceName := range system.InterfaceNames() {
			iface := system.Interfaces[ifaceName]
			if iface.MAC == "" || iface.IP == "" {
				continue
			}
			fmt.Fprintf(&builder, "%s\t%s\n", strings.ToUpper(iface.MAC), iface.IP)
		}
	}
	return fileutil.WriteFile(r.settings.EthersFile, []byte(builder.String()))
}

// writeHosts regenerates the IP to hostname database.
func (r *run) writeHosts() error {
	var builder strings.Builder
	systems := r.store.Systems()
	for i := range systems {
		system := &systems[i]
		for _, ifaceName := range system.InterfaceNames() {
			iface := system.Interfaces[ifaceName]
			if iface.MAC == "" || iface.IP == "" || iface.Hostname == "" {
				continue
			}
			fmt.Fprintf(&builder, "%s\t%s\n", iface.IP, iface.Hostname)
		}
	}
	return fileutil.WriteFile(r.settings.HostsFile, []byte(builder.String()))
}
