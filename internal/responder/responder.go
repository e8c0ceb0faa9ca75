// Package responder routes a customer message to a canned dealership reply.
package responder

import (
	"strings"
	"unicode"
)

// HandoffPhrase appears only in the fallback reply. A reply needs a human
// exactly when it contains this phrase.
const HandoffPhrase = "connect you with one of our team members"

type Reply struct {
	Text       string
	NeedsHuman bool
}

// A keyword matches whole words in order; a trailing "*" also matches longer
// words, so "financ*" covers "financing" and "finance".
type group struct {
	name     string
	keywords []string
	reply    string
}

// Declaration order is match priority.
var groups = []group{
	{
		name:     "greeting",
		keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
		reply:    "Hello! Welcome to our dealership. How can I help you today? I can answer questions about our inventory, pricing, test drives, financing and service.",
	},
	{
		name:     "availability",
		keywords: []string{"available", "availability", "in stock", "inventory", "do you have", "looking for"},
		reply:    "Our inventory changes daily. You can browse current vehicles on our inventory page, or tell me the make and model you have in mind and a sales specialist will confirm availability.",
	},
	{
		name:     "pricing",
		keywords: []string{"price*", "cost*", "how much", "discount*", "best deal"},
		reply:    "Prices are listed on each vehicle page and include current promotions. Taxes, registration and dealer fees are quoted separately at the time of purchase.",
	},
	{
		name:     "test_drive",
		keywords: []string{"test drive", "drive it", "try the car"},
		reply:    "We'd love to get you behind the wheel! Test drives can be booked from any vehicle page, or visit us during business hours and bring a valid driver's license.",
	},
	{
		name:     "financing",
		keywords: []string{"financ*", "loan*", "lease*", "leasing", "monthly payment*", "credit", "interest rate*"},
		reply:    "We work with several lenders to offer competitive financing and leasing options. You can start a pre-approval from our financing page without affecting your credit score.",
	},
	{
		name:     "service",
		keywords: []string{"service*", "maintenance", "oil change", "repair*", "tire*"},
		reply:    "Our service department handles maintenance and repairs for all makes. You can schedule an appointment online or call the service desk during business hours.",
	},
	{
		name:     "hours",
		keywords: []string{"hours", "open*", "close*", "closing", "when are you"},
		reply:    "We're open Monday through Friday from 9:00 AM to 5:00 PM. Messages sent outside those hours are answered the next business day.",
	},
	{
		name:     "location",
		keywords: []string{"location", "address", "where are you", "directions", "find you"},
		reply:    "You can find our address and driving directions on the contact page. Free customer parking is available on site.",
	},
}

var fallback = "Thanks for your message. I'm not sure I can answer that one, so let me " + HandoffPhrase + " who will get back to you shortly."

// Respond picks the first keyword group that matches text, case-insensitively.
func Respond(text string) Reply {
	normalized := " " + strings.Join(words(text), " ") + " "
	for _, g := range groups {
		for _, kw := range g.keywords {
			if matches(normalized, kw) {
				return newReply(g.reply)
			}
		}
	}
	return newReply(fallback)
}

// words lowercases text and splits it on anything that is not a letter or digit.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matches(normalized, keyword string) bool {
	if prefix, ok := strings.CutSuffix(keyword, "*"); ok {
		return strings.Contains(normalized, " "+prefix)
	}
	return strings.Contains(normalized, " "+keyword+" ")
}

// NeedsHuman reports whether reply is the hand-off fallback.
func NeedsHuman(reply string) bool {
	return strings.Contains(reply, HandoffPhrase)
}

// Fallback is the reply used when nothing matches.
func Fallback() string {
	return fallback
}

func newReply(text string) Reply {
	return Reply{Text: text, NeedsHuman: NeedsHuman(text)}
}
