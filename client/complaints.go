package client

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/campus/core/complaint"
)

// ComplaintQuery filters the admin complaints listing.
type ComplaintQuery struct {
	Status   string
	Category string
	Ordering string
}

// SubmitComplaint files nc with the optional image at imagePath.
func (c *Client) SubmitComplaint(ctx context.Context, nc complaint.NewComplaint, imagePath string) (complaint.Complaint, error) {
	if err := checkForm(&nc); err != nil {
		return complaint.Complaint{}, err
	}
	fields := map[string]string{
		"complaintTitle": nc.Title,
		"description":    nc.Description,
		"category":       nc.Category,
	}
	var cpl complaint.Complaint
	err := c.sendMultipart(ctx, rest.Post, "/complaints", fields, imagePath, &cpl)
	return cpl, err
}

func (c *Client) MyComplaints(ctx context.Context) ([]complaint.Complaint, error) {
	var list []complaint.Complaint
	err := c.get(ctx, "/complaints/my", nil, &list)
	return list, err
}

// AllComplaints lists every complaint. Admin only.
func (c *Client) AllComplaints(ctx context.Context, q ComplaintQuery) ([]complaint.Complaint, error) {
	var list []complaint.Complaint
	err := c.get(ctx, "/complaints/all", queryParams("status", q.Status, "category", q.Category, "ordering", q.Ordering), &list)
	return list, err
}

func (c *Client) Complaint(ctx context.Context, id string) (complaint.Complaint, error) {
	var cpl complaint.Complaint
	err := c.get(ctx, "/complaints/"+id, nil, &cpl)
	return cpl, err
}

func (c *Client) SetComplaintStatus(ctx context.Context, id, status string) (complaint.Complaint, error) {
	us := complaint.UpdateStatus{Status: status}
	if err := checkForm(&us); err != nil {
		return complaint.Complaint{}, err
	}
	var cpl complaint.Complaint
	err := c.put(ctx, "/complaints/"+id+"/status", us, &cpl)
	return cpl, err
}

func (c *Client) DeleteComplaint(ctx context.Context, id string) error {
	return c.delete(ctx, "/complaints/"+id)
}
