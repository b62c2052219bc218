// Package synth generates synthetic CloudTrail datasets for testing the
// evaluation pipeline when no real export is available. Generation is seeded,
// so a given seed always produces the same dataset.
package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Columns is the fixed dataset header, in write order.
var Columns = []string{
	"eventTime",
	"eventName",
	"eventSource",
	"sourceIPAddress",
	"userAgent",
	"errorCode",
	"errorMessage",
	"awsRegion",
	"userIdentitytype",
	"userIdentityuserName",
	"userIdentityarn",
	"userIdentityaccountId",
	"requestParametersinstanceType",
	"requestParametersbucketName",
	"responseElementsaccessKeyId",
	"eventID",
	"readOnly",
	"resources",
	"recipientAccountId",
}

// ThreatTypes lists the seeded threat scenarios, one per built-in hypothesis.
var ThreatTypes = []string{
	"failed_login",
	"root_console",
	"cloudtrail_disruption",
	"unauthorized",
	"whoami",
	"secrets",
	"large_instance",
	"s3_bruteforce",
	"suspicious_agent",
	"access_key",
}

// Event is one synthetic CloudTrail record. Absent keys serialize as empty
// CSV cells, which the store loads as NULL.
type Event map[string]string

var (
	eventNames = []string{
		"ConsoleLogin", "GetCallerIdentity", "RunInstances", "StopLogging",
		"DeleteTrail", "GetSecretValue", "CreateAccessKey", "GetBucketAcl",
		"DescribeInstances", "ListBuckets", "GetUser", "PutObject", "GetObject",
	}

	eventSources = []string{
		"signin.amazonaws.com", "sts.amazonaws.com", "ec2.amazonaws.com",
		"cloudtrail.amazonaws.com", "secretsmanager.amazonaws.com",
		"iam.amazonaws.com", "s3.amazonaws.com",
	}

	regions = []string{"us-east-1", "us-west-2", "eu-west-1", "ap-southeast-1"}

	benignUserAgents = []string{
		"aws-cli/2.0.0 Python/3.8.0 Linux/5.4.0",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"aws-sdk-go/1.40.0",
		"Boto3/1.18.0 Python/3.9.0",
	}

	suspiciousUserAgents = []string{
		"kali-linux/2021.1", "ParrotOS/4.11", "powershell/7.1",
	}

	usernames = []string{"admin", "developer", "analyst", "service-account", "root"}

	normalInstanceTypes = []string{"t2.micro", "t2.small", "m5.large", "c5.xlarge"}
	largeInstanceTypes  = []string{"p3.10xlarge", "p3.16xlarge", "p4d.24xlarge"}

	loginFailureMessages = []string{
		"No username found in supplied account",
		"Failed authentication",
		"Invalid credentials",
	}
)

// Generator produces synthetic datasets from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// GenerateDataset builds n events sorted by eventTime. When includeThreats is
// set, roughly n*threatRatio events are drawn evenly from ThreatTypes and the
// remainder are benign background traffic.
func (g *Generator) GenerateDataset(n int, includeThreats bool, threatRatio float64) []Event {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	events := make([]Event, 0, n)
	normal := n

	if includeThreats {
		threats := int(float64(n) * threatRatio)
		normal = n - threats
		perType := threats / len(ThreatTypes)
		for _, tt := range ThreatTypes {
			for i := 0; i < perType; i++ {
				events = append(events, g.threatEvent(tt, start, end))
			}
		}
	}

	for i := 0; i < normal; i++ {
		events = append(events, g.normalEvent(start, end))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i]["eventTime"] < events[j]["eventTime"]
	})
	return events
}

// WriteCSV writes events under the fixed Columns header.
func WriteCSV(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(Columns))
	for _, e := range events {
		for i, col := range Columns {
			record[i] = e[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (g *Generator) normalEvent(start, end time.Time) Event {
	name := g.pick(eventNames)
	for name == "StopLogging" || name == "DeleteTrail" {
		name = g.pick(eventNames)
	}

	username := g.pick(usernames)
	accountID := fmt.Sprintf("%d", 100000000+g.rng.Intn(900000000))
	identityType := "IAMUser"
	if username == "root" {
		identityType = "Root"
	}
	readOnly := "false"
	if g.rng.Intn(2) == 0 {
		readOnly = "true"
	}

	e := Event{
		"eventTime":             g.timestamp(start, end),
		"eventName":             name,
		"eventSource":           g.pick(eventSources),
		"sourceIPAddress":       g.ip(),
		"userAgent":             g.pick(benignUserAgents),
		"awsRegion":             g.pick(regions),
		"userIdentitytype":      identityType,
		"userIdentityuserName":  username,
		"userIdentityarn":       fmt.Sprintf("arn:aws:iam::%s:user/%s", accountID, username),
		"userIdentityaccountId": accountID,
		"eventID":               uuid.NewString(),
		"readOnly":              readOnly,
		"recipientAccountId":    accountID,
	}
	if name == "RunInstances" {
		e["requestParametersinstanceType"] = g.pick(normalInstanceTypes)
	}
	return e
}

func (g *Generator) threatEvent(threatType string, start, end time.Time) Event {
	e := Event{
		"eventTime":             g.timestamp(start, end),
		"sourceIPAddress":       g.ip(),
		"userAgent":             "aws-cli/2.0",
		"awsRegion":             "us-east-1",
		"userIdentitytype":      "IAMUser",
		"userIdentityaccountId": "123456789",
		"eventID":               uuid.NewString(),
		"readOnly":              "false",
		"recipientAccountId":    "123456789",
	}
	setUser := func(name string) {
		e["userIdentityuserName"] = name
		e["userIdentityarn"] = "arn:aws:iam::123456789:user/" + name
	}

	switch threatType {
	case "failed_login":
		e["eventName"] = "ConsoleLogin"
		e["eventSource"] = "signin.amazonaws.com"
		e["userAgent"] = "Mozilla/5.0"
		e["errorCode"] = "Failed"
		e["errorMessage"] = g.pick(loginFailureMessages)
		e["userIdentityuserName"] = "HIDDEN_DUE_TO_SECURITY_REASONS"
		e["userIdentityarn"] = "arn:aws:iam::123456789:user/test"
	case "root_console":
		e["eventName"] = "ConsoleLogin"
		e["eventSource"] = "signin.amazonaws.com"
		e["userAgent"] = "Mozilla/5.0"
		e["userIdentitytype"] = "Root"
		e["userIdentityuserName"] = "root"
		e["userIdentityarn"] = "arn:aws:iam::123456789:root"
	case "cloudtrail_disruption":
		e["eventName"] = g.pick([]string{"StopLogging", "DeleteTrail"})
		e["eventSource"] = "cloudtrail.amazonaws.com"
		setUser("attacker")
	case "unauthorized":
		e["eventName"] = g.pick([]string{"RunInstances", "CreateUser", "PutObject"})
		e["eventSource"] = g.pick(eventSources)
		e["errorCode"] = g.pick([]string{"AccessDenied", "UnauthorizedOperation"})
		e["errorMessage"] = "User is not authorized to perform this action"
		e["userIdentityuserName"] = "unauthorized-user"
		e["userIdentityarn"] = "arn:aws:iam::123456789:user/unauthorized"
	case "whoami":
		e["eventName"] = "GetCallerIdentity"
		e["eventSource"] = "sts.amazonaws.com"
		e["readOnly"] = "true"
		e["userIdentityuserName"] = "recon-user"
		e["userIdentityarn"] = "arn:aws:iam::123456789:user/recon"
	case "secrets":
		e["eventName"] = "GetSecretValue"
		e["eventSource"] = "secretsmanager.amazonaws.com"
		e["readOnly"] = "true"
		e["userIdentityuserName"] = "secrets-user"
		e["userIdentityarn"] = "arn:aws:iam::123456789:user/secrets"
	case "large_instance":
		e["eventName"] = "RunInstances"
		e["eventSource"] = "ec2.amazonaws.com"
		e["requestParametersinstanceType"] = g.pick(largeInstanceTypes)
		setUser("miner")
	case "s3_bruteforce":
		e["eventName"] = "GetBucketAcl"
		e["eventSource"] = "s3.amazonaws.com"
		e["readOnly"] = "true"
		if g.rng.Intn(2) == 0 {
			e["errorCode"] = "AccessDenied"
		}
		e["requestParametersbucketName"] = fmt.Sprintf("bucket-%d", 1000+g.rng.Intn(9000))
		setUser("scanner")
	case "suspicious_agent":
		e["eventName"] = g.pick(eventNames)
		e["eventSource"] = g.pick(eventSources)
		e["userAgent"] = g.pick(suspiciousUserAgents)
		setUser("attacker")
	case "access_key":
		e["eventName"] = "CreateAccessKey"
		e["eventSource"] = "iam.amazonaws.com"
		e["responseElementsaccessKeyId"] = fmt.Sprintf("AKIA%016d", g.rng.Int63n(9000000000000000)+1000000000000000)
		setUser("developer")
	default:
		return g.normalEvent(start, end)
	}
	return e
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

func (g *Generator) ip() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+g.rng.Intn(255), g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(255))
}

func (g *Generator) timestamp(start, end time.Time) string {
	span := int64(end.Sub(start) / time.Second)
	return start.Add(time.Duration(g.rng.Int63n(span+1)) * time.Second).UTC().Format("2006-01-02T15:04:05Z")
}
