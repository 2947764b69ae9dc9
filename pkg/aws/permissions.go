package aws

// Units in the order permissions are printed
var PermissionUnits = []string{"janitor", "starter", "status"}

// RequiredActions lists the IAM actions each unit calls. The deployment that
// runs spoton must grant them.
var RequiredActions = map[string][]string{
	"janitor": {
		"ec2:CreateSnapshot",
		"ec2:CreateTags",
		"ec2:DeleteSnapshot",
		"ec2:DeleteVolume",
		"ec2:DescribeInstances",
		"ec2:DescribeSnapshots",
		"ec2:DescribeVolumes",
		"ec2:TerminateInstances",
	},
	"starter": {
		"ec2:CreateTags",
		"ec2:DescribeInstances",
		"ec2:DescribeSnapshots",
		"ec2:DescribeSpotPriceHistory",
		"ec2:RunInstances",
		"ssm:GetParameters",
	},
	"status": {
		"ec2:DescribeInstances",
		"ec2:DescribeSnapshots",
		"ec2:DescribeSpotPriceHistory",
		"ec2:DescribeVolumes",
		"pricing:GetProducts",
	},
}
