package backup

// Table pairs the JSON envelope key of a table with its SQL name.
type Table struct {
	Key  string
	Name string
}

// deleteOrder lists every backed-up table child-first so the wipe phase
// never violates a foreign key. Restore walks it in reverse, parents
// first.
var deleteOrder = []Table{
	{Key: "workflowInstanceSteps", Name: "workflow_instance_steps"},
	{Key: "workflowInstances", Name: "workflow_instances"},
	{Key: "invoiceTemplateWorkflows", Name: "invoice_template_workflows"},
	{Key: "workflowSteps", Name: "workflow_steps"},
	{Key: "workflows", Name: "workflows"},
	{Key: "incidentComments", Name: "incident_comments"},
	{Key: "incidents", Name: "incidents"},
	{Key: "reminderSettings", Name: "reminder_settings"},
	{Key: "reminders", Name: "reminders"},
	{Key: "invoiceItems", Name: "invoice_items"},
	{Key: "invoices", Name: "invoices"},
	{Key: "invoiceTemplates", Name: "invoice_templates"},
	{Key: "complianceViolations", Name: "compliance_violations"},
	{Key: "complianceSettings", Name: "compliance_settings"},
	{Key: "overtimeBalances", Name: "overtime_balances"},
	{Key: "holidays", Name: "holidays"},
	{Key: "absenceRequests", Name: "absence_requests"},
	{Key: "timeEntries", Name: "time_entries"},
	{Key: "projectAssignments", Name: "project_assignments"},
	{Key: "locations", Name: "locations"},
	{Key: "projects", Name: "projects"},
	{Key: "articles", Name: "articles"},
	{Key: "articleGroups", Name: "article_groups"},
	{Key: "suppliers", Name: "suppliers"},
	{Key: "customers", Name: "customers"},
	{Key: "moduleAccess", Name: "module_access"},
	{Key: "modules", Name: "modules"},
	{Key: "documentNodeGroupPermissions", Name: "document_node_group_permissions"},
	{Key: "documentVersions", Name: "document_versions"},
	{Key: "documentNodes", Name: "document_nodes"},
	{Key: "userGroupMemberships", Name: "user_group_memberships"},
	{Key: "userGroups", Name: "user_groups"},
	{Key: "users", Name: "users"},
	{Key: "systemSettings", Name: "system_settings"},
}

// DeleteOrder returns the tables child-first.
func DeleteOrder() []Table {
	out := make([]Table, len(deleteOrder))
	copy(out, deleteOrder)
	return out
}

// RestoreOrder returns the tables parent-first.
func RestoreOrder() []Table {
	out := make([]Table, len(deleteOrder))
	for i, t := range deleteOrder {
		out[len(deleteOrder)-1-i] = t
	}
	return out
}

// TableCount is the number of tables covered by a backup envelope.
func TableCount() int {
	return len(deleteOrder)
}
