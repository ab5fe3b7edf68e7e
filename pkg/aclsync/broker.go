package aclsync

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/seguro-platform/scheduler/pkg/broker"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// aclEntry is the broker-visible projection of one role ACL grant: the
// same shape the dynamic-security plugin both accepts (addRoleACL) and
// reports back (listRoles verbose). Fingerprinting this projection,
// rather than the raw catalog Role, is what lets a live listRoles
// result compare equal to a catalog-derived desired Set: the plugin has
// no concept of the catalog's store statements, so those can't be part
// of the comparison.
type aclEntry struct {
	ACLType  string `json:"acltype"`
	Topic    string `json:"topic,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Allow    bool   `json:"allow"`
}

// roleACLEntries renders a Role's broker statements into the ACL grants
// the dynamic-security plugin will end up holding, in the same
// expansion roleCreateCommands uses (one entry per statement per
// acltype Subscribe expands into).
func roleACLEntries(role types.Role) []aclEntry {
	var entries []aclEntry
	for _, st := range role.Broker {
		allow := st.Effect == types.EffectAllow
		for _, action := range st.Actions {
			for _, aclType := range brokerACLType(action) {
				entries = append(entries, aclEntry{ACLType: aclType, Topic: st.Topic, Priority: st.Priority, Allow: allow})
			}
		}
	}
	return entries
}

// fingerprintACLEntries canonicalizes an ACL entry list (sorted, so
// catalog order never affects the fingerprint) into the comparable
// string BrokerDesiredState and the live listRoles parser both produce.
func fingerprintACLEntries(entries []aclEntry) (string, error) {
	sorted := append([]aclEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Topic != sorted[j].Topic {
			return sorted[i].Topic < sorted[j].Topic
		}
		if sorted[i].ACLType != sorted[j].ACLType {
			return sorted[i].ACLType < sorted[j].ACLType
		}
		return sorted[i].Priority < sorted[j].Priority
	})
	b, err := json.Marshal(sorted)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fingerprintNames canonicalizes a role-reference list (a group's or
// client's roles, a client's groups) the same way on both the desired
// and live sides: sorted, so catalog slice order never affects it.
func fingerprintNames(names []string) string {
	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	b, _ := json.Marshal(sorted)
	return string(b)
}

const (
	controlTopic         = "$CONTROL/dynamic-security/v1"
	controlResponseTopic = "$CONTROL/dynamic-security/v1/response"
)

// brokerACLType maps a BrokerAction to the dynamic-security plugin's
// own ACL type names. Subscribe grants both pattern-based subscribe
// and the receive-side publish the plugin requires for delivery.
func brokerACLType(a types.BrokerAction) []string {
	switch a {
	case types.BrokerActionPublish:
		return []string{"publishClientSend"}
	case types.BrokerActionSubscribe:
		return []string{"subscribePattern", "publishClientReceive"}
	default:
		return nil
	}
}

// Command is a single dynamic-security control-plane instruction.
type Command struct {
	Command     string   `json:"command"`
	Username    string   `json:"username,omitempty"`
	Rolename    string   `json:"rolename,omitempty"`
	Groupname   string   `json:"groupname,omitempty"`
	ACLType     string   `json:"acltype,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Allow       *bool    `json:"allow,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Verbose     bool     `json:"verbose,omitempty"`
}

// BrokerDesiredState builds the aclsync.Set views of roles, groups, and
// clients that RoleCommands/GroupCommands/ClientCommands diff against
// the broker's current state, resolved from a merged ACL. Fingerprints
// are canonical projections of only what the broker itself can report
// back (ACL grants, role refs, group refs), so they compare equal to
// the Sets ListRoles/ListGroups/ListClients build from a live query.
func BrokerDesiredState(merged types.AccessControlList) (roles, groups, clients Set, err error) {
	roles = make(Set)
	for name, role := range merged.Roles {
		fp, ferr := fingerprintACLEntries(roleACLEntries(role))
		if ferr != nil {
			return nil, nil, nil, fmt.Errorf("fingerprinting role %s: %w", name, ferr)
		}
		roles[name] = Entity{Name: name, Fingerprint: fp}
	}
	groups = make(Set)
	for name, group := range merged.Groups {
		groups[name] = Entity{Name: name, Fingerprint: fingerprintNames(group.Roles)}
	}
	clients = make(Set)
	for name, client := range merged.Clients {
		clients[name] = Entity{Name: name, Fingerprint: fingerprintNames(client.Roles) + "|" + fingerprintNames(client.Groups)}
	}
	return roles, groups, clients, nil
}

// roleCreateCommands renders createRole plus one addRoleACL per ACL
// type each statement action maps to, in a deterministic statement order.
func roleCreateCommands(name string, role types.Role) []Command {
	cmds := []Command{{Command: "createRole", Rolename: name}}
	for _, st := range role.Broker {
		allow := st.Effect == types.EffectAllow
		for _, action := range st.Actions {
			for _, aclType := range brokerACLType(action) {
				cmds = append(cmds, Command{
					Command:  "addRoleACL",
					Rolename: name,
					ACLType:  aclType,
					Topic:    st.Topic,
					Priority: st.Priority,
					Allow:    &allow,
				})
			}
		}
	}
	return cmds
}

func groupCreateCommands(name string, group types.Group) []Command {
	cmds := []Command{{Command: "createGroup", Groupname: name}}
	roles := append([]string{}, group.Roles...)
	sort.Strings(roles)
	for _, r := range roles {
		cmds = append(cmds, Command{Command: "addGroupRole", Groupname: name, Rolename: r})
	}
	return cmds
}

func clientCreateCommands(name string, client types.Client) []Command {
	cmds := []Command{{Command: "createClient", Username: name}}
	roles := append([]string{}, client.Roles...)
	sort.Strings(roles)
	for _, r := range roles {
		cmds = append(cmds, Command{Command: "addClientRole", Username: name, Rolename: r})
	}
	groups := append([]string{}, client.Groups...)
	sort.Strings(groups)
	for _, g := range groups {
		cmds = append(cmds, Command{Command: "addClientGroup", Username: name, Groupname: g})
	}
	return cmds
}

// BuildPlan renders the ordered command list for a broker Plan:
// create/modify roles, groups, clients (in that order, so role
// references resolve before the entities that use them), then delete
// clients, groups, roles (the reverse order, so nothing references an
// already-deleted entity mid-batch).
func BuildPlan(merged types.AccessControlList, rolePlan, groupPlan, clientPlan Plan) []Command {
	var cmds []Command

	for _, name := range append(rolePlan.Create.Names(), rolePlan.Modify.Names()...) {
		if _, wasModify := rolePlan.Modify[name]; wasModify {
			cmds = append(cmds, Command{Command: "deleteRole", Rolename: name})
		}
		cmds = append(cmds, roleCreateCommands(name, merged.Roles[name])...)
	}
	for _, name := range append(groupPlan.Create.Names(), groupPlan.Modify.Names()...) {
		if _, wasModify := groupPlan.Modify[name]; wasModify {
			cmds = append(cmds, Command{Command: "deleteGroup", Groupname: name})
		}
		cmds = append(cmds, groupCreateCommands(name, merged.Groups[name])...)
	}
	for _, name := range append(clientPlan.Create.Names(), clientPlan.Modify.Names()...) {
		if _, wasModify := clientPlan.Modify[name]; wasModify {
			cmds = append(cmds, Command{Command: "deleteClient", Username: name})
		}
		cmds = append(cmds, clientCreateCommands(name, merged.Clients[name])...)
	}

	for _, name := range clientPlan.Delete.Names() {
		cmds = append(cmds, Command{Command: "deleteClient", Username: name})
	}
	for _, name := range groupPlan.Delete.Names() {
		cmds = append(cmds, Command{Command: "deleteGroup", Groupname: name})
	}
	for _, name := range rolePlan.Delete.Names() {
		cmds = append(cmds, Command{Command: "deleteRole", Rolename: name})
	}

	return cmds
}

type commandBatch struct {
	Commands []Command `json:"commands"`
}

type commandResponse struct {
	Responses []struct {
		Command string `json:"command"`
		Error   string `json:"error,omitempty"`
	} `json:"responses"`
}

// Plugin publishes command batches to the broker's dynamic-security
// control topic and takes the next message on the response topic as the
// batch's response; responses are not matched to a specific batch.
type Plugin struct {
	mqtt    *broker.Client
	timeout time.Duration
}

// NewPlugin wraps an MQTT client for dynamic-security command exchange.
func NewPlugin(mqttClient *broker.Client) *Plugin {
	return &Plugin{mqtt: mqttClient, timeout: 10 * time.Second}
}

// Execute publishes cmds as a single batch and waits for the broker's
// response, returning an error aggregating any per-command failures.
func (p *Plugin) Execute(cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}

	correlationID := uuid.NewString()
	respCh := make(chan commandResponse, 1)
	if err := p.mqtt.Subscribe(controlResponseTopic, func(_ string, payload []byte) {
		var resp commandResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			log.WithComponent("aclsync-broker").Warn().Err(err).Msg("decoding dynamic-security response")
			return
		}
		select {
		case respCh <- resp:
		default:
		}
	}); err != nil {
		return fmt.Errorf("subscribing to dynamic-security responses: %w", err)
	}
	defer p.mqtt.Unsubscribe(controlResponseTopic)

	payload, err := json.Marshal(commandBatch{Commands: cmds})
	if err != nil {
		return fmt.Errorf("marshaling dynamic-security batch %s: %w", correlationID, err)
	}
	if err := p.mqtt.Publish(controlTopic, payload); err != nil {
		return fmt.Errorf("publishing dynamic-security batch: %w", err)
	}

	select {
	case resp := <-respCh:
		for _, r := range resp.Responses {
			if r.Error != "" {
				return fmt.Errorf("dynamic-security command %q failed: %s", r.Command, r.Error)
			}
		}
		return nil
	case <-time.After(p.timeout):
		return fmt.Errorf("timed out waiting for dynamic-security response")
	}
}

// queryResponse is the shape of a dynamic-security response to a
// verbose list command, carrying each command's "data" payload raw so
// ListRoles/ListGroups/ListClients can decode it into their own shape.
type queryResponse struct {
	Responses []struct {
		Command string          `json:"command"`
		Error   string          `json:"error,omitempty"`
		Data    json.RawMessage `json:"data,omitempty"`
	} `json:"responses"`
}

// query publishes a single list command and returns its response's raw
// data payload, for ListRoles/ListGroups/ListClients.
func (p *Plugin) query(cmd Command) (json.RawMessage, error) {
	respCh := make(chan queryResponse, 1)
	if err := p.mqtt.Subscribe(controlResponseTopic, func(_ string, payload []byte) {
		var resp queryResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			log.WithComponent("aclsync-broker").Warn().Err(err).Msg("decoding dynamic-security list response")
			return
		}
		select {
		case respCh <- resp:
		default:
		}
	}); err != nil {
		return nil, fmt.Errorf("subscribing to dynamic-security responses: %w", err)
	}
	defer p.mqtt.Unsubscribe(controlResponseTopic)

	payload, err := json.Marshal(commandBatch{Commands: []Command{cmd}})
	if err != nil {
		return nil, fmt.Errorf("marshaling dynamic-security query: %w", err)
	}
	if err := p.mqtt.Publish(controlTopic, payload); err != nil {
		return nil, fmt.Errorf("publishing dynamic-security query: %w", err)
	}

	select {
	case resp := <-respCh:
		for _, r := range resp.Responses {
			if r.Command != cmd.Command {
				continue
			}
			if r.Error != "" {
				return nil, fmt.Errorf("dynamic-security command %q failed: %s", r.Command, r.Error)
			}
			return r.Data, nil
		}
		return nil, fmt.Errorf("no response to dynamic-security command %q", cmd.Command)
	case <-time.After(p.timeout):
		return nil, fmt.Errorf("timed out waiting for dynamic-security %q response", cmd.Command)
	}
}

// ListRoles enumerates the broker's live roles, with their ACL grants
// fingerprinted the same way BrokerDesiredState fingerprints a catalog
// role, so the result is directly comparable with Diff.
func (p *Plugin) ListRoles() (Set, error) {
	data, err := p.query(Command{Command: "listRoles", Verbose: true})
	if err != nil {
		return nil, fmt.Errorf("listing broker roles: %w", err)
	}
	var parsed struct {
		Roles []struct {
			Rolename string `json:"rolename"`
			ACLs     []struct {
				ACLType  string `json:"acltype"`
				Topic    string `json:"topic"`
				Priority int    `json:"priority"`
				Allow    bool   `json:"allow"`
			} `json:"acls"`
		} `json:"roles"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding listRoles response: %w", err)
	}
	out := make(Set, len(parsed.Roles))
	for _, r := range parsed.Roles {
		entries := make([]aclEntry, 0, len(r.ACLs))
		for _, a := range r.ACLs {
			entries = append(entries, aclEntry{ACLType: a.ACLType, Topic: a.Topic, Priority: a.Priority, Allow: a.Allow})
		}
		fp, err := fingerprintACLEntries(entries)
		if err != nil {
			return nil, fmt.Errorf("fingerprinting live role %s: %w", r.Rolename, err)
		}
		out[r.Rolename] = Entity{Name: r.Rolename, Fingerprint: fp}
	}
	return out, nil
}

// ListGroups enumerates the broker's live groups, fingerprinted by
// their role references.
func (p *Plugin) ListGroups() (Set, error) {
	data, err := p.query(Command{Command: "listGroups", Verbose: true})
	if err != nil {
		return nil, fmt.Errorf("listing broker groups: %w", err)
	}
	var parsed struct {
		Groups []struct {
			Groupname string `json:"groupname"`
			Roles     []struct {
				Rolename string `json:"rolename"`
			} `json:"roles"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding listGroups response: %w", err)
	}
	out := make(Set, len(parsed.Groups))
	for _, g := range parsed.Groups {
		names := make([]string, 0, len(g.Roles))
		for _, r := range g.Roles {
			names = append(names, r.Rolename)
		}
		out[g.Groupname] = Entity{Name: g.Groupname, Fingerprint: fingerprintNames(names)}
	}
	return out, nil
}

// ListClients enumerates the broker's live clients, fingerprinted by
// their role and group references.
func (p *Plugin) ListClients() (Set, error) {
	data, err := p.query(Command{Command: "listClients", Verbose: true})
	if err != nil {
		return nil, fmt.Errorf("listing broker clients: %w", err)
	}
	var parsed struct {
		Clients []struct {
			Username string `json:"username"`
			Roles    []struct {
				Rolename string `json:"rolename"`
			} `json:"roles"`
			Groups []struct {
				Groupname string `json:"groupname"`
			} `json:"groups"`
		} `json:"clients"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding listClients response: %w", err)
	}
	out := make(Set, len(parsed.Clients))
	for _, c := range parsed.Clients {
		roles := make([]string, 0, len(c.Roles))
		for _, r := range c.Roles {
			roles = append(roles, r.Rolename)
		}
		groups := make([]string, 0, len(c.Groups))
		for _, g := range c.Groups {
			groups = append(groups, g.Groupname)
		}
		out[c.Username] = Entity{Name: c.Username, Fingerprint: fingerprintNames(roles) + "|" + fingerprintNames(groups)}
	}
	return out, nil
}
