package a2a

import "fmt"

// AgentCapabilities describes the optional capabilities an agent supports.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentSkill describes a single skill provided by the agent.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
}

// AgentCard is the metadata document advertising one agent to protocol callers.
// Cards are built once at startup and never mutated.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	Skills             []AgentSkill      `json:"skills"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
}

// RPCPath is the fixed sub-path of the JSON-RPC endpoint mounted under each
// agent identifier. Card URLs are derived from it so that advertised
// endpoints and the routing table never diverge.
const RPCPath = "a2a"

// skillInfo holds the static skill metadata advertised for a known agent.
type skillInfo struct {
	name        string
	description string
}

var skillTable = map[string]skillInfo{
	"add2-agent": {name: "Add Two", description: "Adds +2 to input"},
	"echo-agent": {name: "Echo", description: "Echoes input back"},
}

// BuildAgentCard builds the capability card for the given agent identifier.
// Unknown identifiers degrade to placeholder metadata instead of failing, so
// a misconfigured deployment still advertises a well-formed card.
func BuildAgentCard(agentID, baseURL string) *AgentCard {
	info, ok := skillTable[agentID]
	if !ok {
		info = skillInfo{name: "Unknown", description: "Unknown"}
	}

	return &AgentCard{
		Name:        fmt.Sprintf("%s agent", agentID),
		Version:     "1.0",
		Description: info.description,
		URL:         fmt.Sprintf("%s/%s/%s", baseURL, agentID, RPCPath),
		Capabilities: AgentCapabilities{
			Streaming: false,
		},
		Skills: []AgentSkill{
			{
				ID:          agentID,
				Name:        info.name,
				Description: info.description,
				Tags:        []string{},
			},
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
	}
}
