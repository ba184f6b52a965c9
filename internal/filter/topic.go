package filter

import "strings"

// TopicMatcher decides whether a message's source/topic satisfies a
// selector. The default is exact string match; spec.md §4.7 allows a
// pluggable implementation (e.g. an MQTT-style wildcard matcher) to be
// injected via MessageHistory.SetTopicMatcher, and the same interface
// backs a FROM clause's topic selector.
type TopicMatcher interface {
	Match(selector, topic string) bool
}

// ExactTopicMatcher requires selector == topic.
type ExactTopicMatcher struct{}

func (ExactTopicMatcher) Match(selector, topic string) bool { return selector == topic }

// MQTTWildcardTopicMatcher treats '+' as a single-level wildcard and '#'
// as a multi-level trailing wildcard, the MQTT convention mentioned in
// spec.md §4.7.
type MQTTWildcardTopicMatcher struct{}

func (MQTTWildcardTopicMatcher) Match(selector, topic string) bool {
	selParts := strings.Split(selector, "/")
	topicParts := strings.Split(topic, "/")

	for i, sp := range selParts {
		if sp == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if sp == "+" {
			continue
		}
		if sp != topicParts[i] {
			return false
		}
	}
	return len(selParts) == len(topicParts)
}

// TopicSelector is the parsed FROM clause. An empty Pattern matches every
// topic, so a zero-value Expression matches every message.
type TopicSelector struct {
	Pattern string
	Matcher TopicMatcher
}

func (t TopicSelector) Matches(topic string) bool {
	if t.Pattern == "" {
		return true
	}
	matcher := t.Matcher
	if matcher == nil {
		matcher = ExactTopicMatcher{}
	}
	return matcher.Match(t.Pattern, topic)
}
