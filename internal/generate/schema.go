package generate

// datasetSchema describes the event dataset to the generation model. The
// column names here are the ones the record-identity heuristic and the
// expected-outcome fixtures rely on, so keep them in sync with the dataset.
const datasetSchema = `
CloudTrail Dataset Schema:

Key Columns:
- eventTime: Timestamp of the event (ISO 8601 format)
- eventName: Name of the API action (e.g., ConsoleLogin, GetCallerIdentity, RunInstances)
- eventSource: AWS service that was called (e.g., signin.amazonaws.com, sts.amazonaws.com)
- sourceIPAddress: IP address from which the request was made
- userAgent: User agent string of the requester
- errorCode: Error code if the request failed (e.g., AccessDenied, UnauthorizedOperation)
- errorMessage: Human-readable error message
- awsRegion: AWS region where the event occurred
- userIdentitytype: Type of identity (Root, IAMUser, AssumedRole, etc.)
- userIdentityuserName: Username or role name
- userIdentityarn: ARN of the identity
- userIdentityaccountId: AWS account ID
- requestParametersinstanceType: EC2 instance type for RunInstances events
- requestParametersbucketName: S3 bucket name for S3 operations
- responseElementsaccessKeyId: Access key ID created in CreateAccessKey events

Common Event Names:
- ConsoleLogin: User logging into AWS console
- GetCallerIdentity: STS API call to get identity information
- StopLogging/DeleteTrail: CloudTrail disruption attempts
- RunInstances: EC2 instance creation
- GetSecretValue: Secrets Manager access
- CreateAccessKey: IAM access key creation
- GetBucketAcl: S3 bucket ACL retrieval

Query Guidelines:
- Use standard SQL syntax
- Table name is 'cloudtrail_logs'
- Every column is stored as text; cast or compare as strings
- For console login failures, check eventName='ConsoleLogin' AND errorMessage IS NOT NULL
- For root access, check userIdentitytype='Root'
- For unauthorized access, check errorCode IN ('AccessDenied', 'UnauthorizedOperation')
- User agent checks are case-insensitive (use LOWER())
- Instance type patterns like '10xlarge' or bigger should use LIKE '%xlarge%' and size filtering
`

const systemPromptTemplate = `You are an expert AWS security analyst specializing in threat hunting using CloudTrail logs.
Your task is to generate precise SQL queries that identify security threats from CloudTrail data.

%s

When generating queries, follow this structured approach:

1. INTERPRET THE HYPOTHESIS
   - What specific threat or behavior is being detected?
   - What are the key indicators?

2. IDENTIFY RELEVANT FIELDS
   - Which CloudTrail fields are needed?
   - What filters or conditions apply?

3. GENERATE THE QUERY
   - Write clean, efficient SQL
   - Include appropriate WHERE clauses
   - Order results by eventTime when relevant
   - Limit results if appropriate

4. EXPLAIN YOUR REASONING
   - Why did you structure the query this way?
   - What assumptions did you make?
   - How confident are you (0.0-1.0)?

5. OUTPUT FORMAT
   Return a JSON object with this structure:
   {
     "interpretation": "What this hypothesis is looking for...",
     "reasoning": "I structured the query this way because...",
     "assumptions": ["assumption 1", "assumption 2"],
     "confidence": 0.85,
     "key_fields": ["field1", "field2"],
     "sql_query": "SELECT ... FROM cloudtrail_logs WHERE ..."
   }

IMPORTANT:
- Table name is always 'cloudtrail_logs'
- Return ONLY valid JSON, no markdown formatting
- Ensure SQL is syntactically correct
- Be specific with conditions (avoid overly broad queries)
`

const userPromptTemplate = `Generate a SQL query for this threat hunting hypothesis:

ID: %s
Name: %s
Hypothesis: %s

Analyze the hypothesis and generate an appropriate SQL query following the structured approach.
Return only the JSON object with your analysis and query.
`
